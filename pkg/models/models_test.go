package models_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/mandelsoft/dbinit/pkg/testutils"

	"github.com/mandelsoft/dbinit/pkg/database"
	_ "github.com/mandelsoft/dbinit/pkg/impl/database/sqldb"
	"github.com/mandelsoft/dbinit/pkg/models"
	"github.com/mandelsoft/dbinit/pkg/schema"
	"github.com/mandelsoft/dbinit/pkg/utils"
)

var _ = Describe("models", func() {
	It("registers the users table", func() {
		Expect(models.Metadata.TableNames()).To(Equal([]string{"users"}))

		t := models.Metadata.Table("users")
		Expect(t.ColumnNames()).To(Equal([]string{"id", "email", "username", "hashed_password", "full_name", "is_active", "created_at"}))
		Expect(t.PrimaryKey()).To(Equal([]string{"id"}))
		Expect(t.Column("id").AutoIncrement).To(BeTrue())
		Expect(t.Column("email").Size).To(Equal(255))
		Expect(t.Column("email").Nullable).To(BeFalse())
		Expect(t.Column("username").Size).To(Equal(50))
		Expect(t.Column("is_active").Default).To(Equal(utils.Pointer("true")))
		Expect(t.Column("created_at").Type).To(Equal(schema.DateTime))
		Expect(t.Column("created_at").Default).To(Equal(utils.Pointer(schema.DefaultNow)))
		Expect(utils.TransformSlice(t.Indexes, func(i *schema.Index) string { return i.Name })).To(Equal([]string{
			"ix_users_id", "ix_users_email", "ix_users_username",
		}))
		Expect(t.Indexes[1].Unique).To(BeTrue())
	})

	It("creates the users table once", func() {
		ctx := context.Background()
		e := Must(database.Open(ctx, "sqlite://"))
		defer e.Close()

		r := Must(models.Metadata.CreateAll(ctx, e))
		Expect(r.Created).To(Equal([]string{"users"}))
		Expect(Must(e.ColumnNames(ctx, "users"))).To(Equal(models.Metadata.Table("users").ColumnNames()))

		r = Must(models.Metadata.CreateAll(ctx, e))
		Expect(r.Created).To(BeEmpty())
		Expect(r.Skipped).To(Equal([]string{"users"}))
	})
})
