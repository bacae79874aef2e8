package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkashama/bweni/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

var AllRoles = []string{RoleStudent, RoleAdmin}

type User struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	RollNumber    string      `json:"rollNumber"`
	Role          string      `json:"role"`
	ParentName    string      `json:"parentName"`
	ParentMobile  string      `json:"parentMobile"`
	StudentMobile string      `json:"studentMobile"`
	PhotoURL      string      `json:"photoUrl,omitempty"`
	RoomID        null.String `json:"room"` // written only by the room registry
	IsActive      *bool       `json:"isActive"`
	PasswordHash  []byte      `json:"-"`
	CreatedAt     time.Time   `json:"createdAt"` // UTC
	UpdatedAt     time.Time   `json:"updatedAt"` // UTC
	LastLogin     time.Time   `json:"lastLogin"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// PublicInfo is the subset of a User exposed when expanding references on
// complaints, leaves and room occupant lists.
type PublicInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber,omitempty"`
}

func (u *User) PublicInfo() PublicInfo {
	return PublicInfo{ID: u.ID, Name: u.Name, RollNumber: u.RollNumber}
}

// NewUser contains information needed to sign a student up.
// Role is not accepted from clients; signup always creates a student.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	RollNumber      string `json:"rollNumber" validate:"required,alphanum_"`
	Email           string `json:"email" validate:"required,email"`
	ParentName      string `json:"parentName" validate:"required"`
	ParentMobile    string `json:"parentMobile" validate:"required,mobile"`
	StudentMobile   string `json:"studentMobile" validate:"required,mobile"`
	PhotoURL        string `json:"photoUrl" validate:"omitempty,url"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.RollNumber = core.CleanString(nu.RollNumber, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.ParentName = core.CleanString(nu.ParentName)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email, nu.RollNumber)
}

// UpdateProfile defines what a user may change about themselves.
// Role, roll number and room reference are immutable through this path.
type UpdateProfile struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	ParentName      string `json:"parentName"`
	ParentMobile    string `json:"parentMobile" validate:"omitempty,mobile"`
	StudentMobile   string `json:"studentMobile" validate:"omitempty,mobile"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required_with=Password,eqfield=Password"`
}

func (up *UpdateProfile) Validate(origUsr User, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(up.Name); name != "" {
		up.Name = name
	} else {
		up.Name = origUsr.Name
	}
	if email := core.CleanString(up.Email, true /* lower */); email != "" {
		up.Email = email
	} else {
		up.Email = origUsr.Email
	}
	if pname := core.CleanString(up.ParentName); pname != "" {
		up.ParentName = pname
	} else {
		up.ParentName = origUsr.ParentName
	}
	if up.ParentMobile == "" {
		up.ParentMobile = origUsr.ParentMobile
	}
	if up.StudentMobile == "" {
		up.StudentMobile = origUsr.StudentMobile
	}

	if err := validate.Struct(up); err != nil {
		return err
	}
	return svc.CheckUniqueness(up.Email, origUsr.RollNumber, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Role     string `query:"role"`
	IsActive *bool  `query:"isActive"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

// GetFilter selects a single user; ID wins, then Email, then RollNumber.
type GetFilter struct {
	ID         string
	Email      string
	RollNumber string
}
