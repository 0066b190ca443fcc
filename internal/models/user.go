package models

// RootLogin is the only account; its password comes from the
// environment.
const RootLogin = "root"

type Credentials struct {
	Login string `json:"login"`
	Pass  string `json:"pass"`
}
