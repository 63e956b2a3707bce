package domain

type User struct {
	ID    string `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
	Phone string `db:"phone" json:"phone,omitempty"`
	Hash  string `db:"password_hash" json:"-"`
	Role  string `db:"role" json:"role"`
}
