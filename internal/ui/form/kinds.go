package form

import "fmt"

// Form kinds.
const (
	KindLogin          = "login"
	KindRegister       = "register"
	KindCreateChannel  = "channel:create"
	KindUpdateUsername = "user:username"
	KindUpdatePassword = "user:password"
	KindReact          = "message:react"
)

const missingCredentials = "Please enter username and password"

func credentialSpecs() []Spec {
	return []Spec{
		{Label: "Username", Placeholder: "username", CharLimit: 64},
		{Label: "Password", Placeholder: "password", Secret: true, CharLimit: 128},
	}
}

// NewLogin builds the login screen.
func NewLogin() *Form {
	return New(KindLogin, "Login", "enter log in  tab next field  ctrl+r register  ctrl+c quit",
		credentialSpecs(), Required(missingCredentials))
}

// NewRegister builds the registration screen.
func NewRegister() *Form {
	return New(KindRegister, "Register", "enter create account  tab next field  esc back to login",
		credentialSpecs(), Required(missingCredentials))
}

func NewCreateChannel() *Form {
	return New(KindCreateChannel, "Create Channel", "Press Enter to create. Esc to cancel.",
		[]Spec{{Placeholder: "channel-name", CharLimit: 64}}, Required("Channel name required"))
}

func NewUpdateUsername(current string) *Form {
	f := New(KindUpdateUsername, "Change Username", "Press Enter to save. Esc to cancel.",
		[]Spec{{Placeholder: "new username", CharLimit: 64}}, Required("Username required"))
	if current != "" {
		f.SetValue(0, current)
	}
	return f
}

func NewUpdatePassword() *Form {
	return New(KindUpdatePassword, "Change Password", "Press Enter to save. Esc to cancel.",
		[]Spec{{Placeholder: "new password", Secret: true, CharLimit: 128}}, Required("Password required"))
}

// NewReact prompts for the emoji to add to messageID.
func NewReact(messageID int64) *Form {
	title := fmt.Sprintf("React to message %d", messageID)
	return New(KindReact, title, "Type an emoji and press Enter. Esc to cancel.",
		[]Spec{{Placeholder: "👍", CharLimit: 16}}, Required("Emoji required")).WithTarget(messageID)
}
