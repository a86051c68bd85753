package packets

import "packetdef"

//packet:message
type Room struct {
	Id    int
	Name  string
	Users packetdef.List[packetdef.FixedSizeString] `packet:"size=1"`
}

//packet:message 3
type CsRoomListReq struct{}

//packet:message 4
type ScRoomListRes struct {
	Rooms packetdef.List[Room]
}

//packet:message 5
type CsRoomCreateReq struct {
	Name string
}

//packet:message 6
type ScRoomCreate struct {
	Result byte
	Id     int
	Name   string
}

//packet:message 7
type CsRoomEnterReq struct{}

//packet:message 8
type ScRoomEnterRes struct {
	Result byte
	Id     *int
	Name   *string
	Users  *packetdef.List[packetdef.Tuple[packetdef.FixedSizeString, int]] `packet:"size=1"`
}

//packet:message 9
type CsChatReq struct {
	Message string
}

//packet:message 10
type ScChatRes struct {
	SenderId int
	Message  string
}

//packet:message 11
type CsLeaveReq struct{}

//packet:message 12
type ScLeaveRes struct {
	Id int
}

//packet:message 13
type ScRoomDelete struct {
	Id int
}

//packet:message 14
type ScRoomUserEnter struct {
	Username packetdef.FixedSizeString
	Id       int
}
