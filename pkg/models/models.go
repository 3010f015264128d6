// Package models contains the database models of the
// authentication service.
package models

import (
	"time"

	"github.com/mandelsoft/dbinit/pkg/schema"
)

// Metadata is the registry of all application tables.
var Metadata = schema.NewMetaData()

func init() {
	schema.MustRegister[User](Metadata)
}

type User struct {
	ID             int       `db:"id,pk,autoincrement,index"`
	Email          string    `db:"email,unique,index,size=255"`
	Username       string    `db:"username,unique,index,size=50"`
	HashedPassword string    `db:"hashed_password,size=255"`
	FullName       string    `db:"full_name,size=255,null"`
	IsActive       bool      `db:"is_active,default=true,null"`
	CreatedAt      time.Time `db:"created_at,default=now,null"`
}

func (User) TableName() string { return "users" }
