package domain

import "strings"

// RoomCapacity is the number of member slots in every room.
const RoomCapacity = 4

// RoomCodeLen is the length of a room code.
const RoomCodeLen = 4

// RoomCodeAlphabet is the set of letters room codes are drawn from.
const RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

type RoomCode string

// NormalizeRoomCode upper-cases client input so lookups are case-insensitive.
func NormalizeRoomCode(raw string) RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(raw)))
}

type Room struct {
	Code     RoomCode
	Capacity int
}
