package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"uniqueIndex;size:20;not null" json:"userId"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Name      string    `gorm:"size:20;not null" json:"name"`
	Email     string    `gorm:"size:50" json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser 校验字段并对密码做 bcrypt
func NewUser(userID, password, name, email string) (*User, error) {
	u := &User{UserID: strings.TrimSpace(userID), Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}

	v := &validator{}
	v.check(between(u.UserID, 1, 20), "userId", "length must be between 1 and 20")
	v.check(len(password) >= 1 && len(password) <= 72, "password", "length must be between 1 and 72 bytes")
	u.validateProfile(v)
	if err := v.err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u.Password = string(hash)
	return u, nil
}

// Equals 都已持久化时按主键比较，否则按登录 id
func (u *User) Equals(other *User) bool {
	if u == nil || other == nil {
		return false
	}
	if u.ID != 0 && other.ID != 0 {
		return u.ID == other.ID
	}
	return u.UserID == other.UserID
}

func (u *User) MatchPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// Update 只有本人可以修改姓名和邮箱
func (u *User) Update(loginUser *User, name, email string) error {
	if !u.Equals(loginUser) {
		return ErrNotOwner
	}
	next := User{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	v := &validator{}
	next.validateProfile(v)
	if err := v.err(); err != nil {
		return err
	}
	u.Name = next.Name
	u.Email = next.Email
	return nil
}

func (u *User) validateProfile(v *validator) {
	v.check(between(u.Name, 1, 20), "name", "length must be between 1 and 20")
	v.check(utf8.RuneCountInString(u.Email) <= 50, "email", "length must be at most 50")
}

func between(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}
