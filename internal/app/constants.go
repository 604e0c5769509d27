package app

const (
	// RoomCodeMin and RoomCodeMax bound the four-digit room codes handed to players.
	RoomCodeMin = 1000
	RoomCodeMax = 9999

	// maxRoomCodeAttempts caps collision retries when picking a fresh room code.
	maxRoomCodeAttempts = 64
)
