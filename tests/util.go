package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nkashama/bweni/core/room"
	"github.com/nkashama/bweni/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, rollNumber, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:          name,
		RollNumber:    rollNumber,
		Email:         email,
		Role:          role,
		ParentName:    "Parent " + name,
		ParentMobile:  "0810000001",
		StudentMobile: "0820000001",
		CreatedAt:     tstamp,
		UpdatedAt:     tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateRoom(
	t *testing.T,
	repo room.Repository,
	roomNumber string,
	floor, capacity int,
	occupantIDs ...string,
) room.Room {
	t.Helper()

	rm := room.Room{
		RoomNumber: roomNumber,
		Floor:      floor,
		Capacity:   capacity,
		Type:       room.TypeForCapacity(capacity),
		Occupants:  occupantIDs,
		IsOccupied: len(occupantIDs) > 0,
	}
	rm, err := repo.CreateRoom(context.Background(), rm)
	if err != nil {
		t.Fatalf("CreateRoom() failed: %v", err)
	}
	return rm
}
