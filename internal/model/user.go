package model

// User is the slice of the identity record the orchestration core needs:
// existence checks on create/join and display fields for fanout events.
// Profile CRUD lives elsewhere.
type User struct {
	UserID   string `bson:"_id" json:"userId"`
	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	PhotoURL string `bson:"photoURL" json:"photoURL"`
}
