package main

import (
	"context"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/user"
)

// addAdmin updates or creates an admin user.User
func (cli *commandLine) addAdmin(name, email, rollNumber, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	rollNumber = core.CleanString(rollNumber, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:       name,
			Email:      email,
			RollNumber: rollNumber,
		}
	}
	usr.Role = user.RoleAdmin
	usr.SetActive(true)
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
