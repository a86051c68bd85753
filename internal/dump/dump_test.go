package dump

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"packet-generator/internal/model"
)

func sampleGraph() *model.SchemaGraph {
	i32 := &model.TypeReference{Kind: model.KindPrimitive, Source: "int32", Target: "int32_t", Head: "int32_t", ID: 7}

	return &model.SchemaGraph{
		Packets: []*model.PacketDescriptor{{
			MessageDescriptor: model.MessageDescriptor{
				Name:      "RoomCreate",
				Namespace: "packets",
				Modifier:  "public",
				Fields:    []model.FieldDescriptor{{Name: "Id", TargetName: "id", Type: i32}},
				Position:  "room.go:10:6",
			},
			SourceName: "ScRoomCreate",
			Prefix:     "Sc",
			ProtocolID: 6,
			Direction:  model.ServerToClient,
		}},
		Messages: []*model.MessageDescriptor{{
			Name:      "Room",
			Namespace: "packets",
			Modifier:  "public",
			Fields: []model.FieldDescriptor{{
				Name:       "Ids",
				TargetName: "ids",
				Type: &model.TypeReference{
					Kind: model.KindCollection, Source: "packetdef.List[int32]", Target: "std::vector<int32_t>",
					Head: "std::vector", Args: []*model.TypeReference{i32}, SizeWidth: 2, SizeType: "uint16_t",
				},
				Optional: true,
			}},
		}},
		Includes: []string{"<optional>", "<vector>"},
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"json", "YAML", " msgpack "} {
		_, err := ParseFormat(in)
		assert.NoError(t, err, in)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestEncode_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleGraph(), FormatJSON))

	out := buf.String()
	assert.Contains(t, out, `"source_name": "ScRoomCreate"`)
	assert.Contains(t, out, `"protocol_id": 6`)
	assert.Contains(t, out, `"direction": "ServerToClient"`)
	assert.Contains(t, out, `"kind": "Collection"`)
	assert.Contains(t, out, `"size_type": "uint16_t"`)
	assert.NotContains(t, out, "room.go:10:6")
}

func TestEncode_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleGraph(), FormatYAML))

	out := buf.String()
	assert.Contains(t, out, "source_name: ScRoomCreate")
	assert.Contains(t, out, "protocol_id: 6")
	assert.Contains(t, out, "direction: ServerToClient")
	assert.Contains(t, out, "kind: Primitive")
	assert.Contains(t, out, "- <optional>")
	assert.NotContains(t, out, "room.go:10:6")
}

func TestEncode_Msgpack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleGraph(), FormatMsgpack))

	var got struct {
		Packets []struct {
			Name       string `msgpack:"name"`
			SourceName string `msgpack:"source_name"`
			ProtocolID uint32 `msgpack:"protocol_id"`
		} `msgpack:"packets"`
		Includes []string `msgpack:"includes"`
	}

	require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Packets, 1)
	assert.Equal(t, "RoomCreate", got.Packets[0].Name)
	assert.Equal(t, "ScRoomCreate", got.Packets[0].SourceName)
	assert.Equal(t, uint32(6), got.Packets[0].ProtocolID)
	assert.Equal(t, []string{"<optional>", "<vector>"}, got.Includes)
}

func TestEncode_UnknownFormat(t *testing.T) {
	assert.Error(t, Encode(&bytes.Buffer{}, sampleGraph(), Format("xml")))
}
