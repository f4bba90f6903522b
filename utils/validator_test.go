package utils

import "testing"

type registerPayload struct {
	Name                 string `validate:"required,nameok"`
	Number               string `validate:"required,phone8"`
	Password             string `validate:"required,pwdmin"`
	PasswordConfirmation string `validate:"required,eqfield=Password"`
}

func TestValidateStruct_Valid(t *testing.T) {
	p := registerPayload{
		Name:                 "Budi Santoso",
		Number:               "81234567890",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
	}
	if err := ValidateStruct(&p); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}

func TestValidateStruct_RequiredMissing(t *testing.T) {
	p := registerPayload{
		Number:               "81234567890",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
	}
	if err := ValidateStruct(&p); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestValidateStruct_Phone8(t *testing.T) {
	cases := map[string]bool{
		"81234567890":    true,
		"88888888":       true,
		"71234567890":    false, // must start with 8
		"8123":           false, // too short
		"81234567890123": false, // too long
		"8123456789a":    false,
	}
	for number, want := range cases {
		p := registerPayload{
			Name:                 "Budi",
			Number:               number,
			Password:             "secret1",
			PasswordConfirmation: "secret1",
		}
		err := ValidateStruct(&p)
		if want && err != nil {
			t.Fatalf("number %q: expected valid, got %v", number, err)
		}
		if !want && err == nil {
			t.Fatalf("number %q: expected error", number)
		}
	}
}

func TestValidateStruct_EqField(t *testing.T) {
	p := registerPayload{
		Name:                 "Budi",
		Number:               "81234567890",
		Password:             "secret1",
		PasswordConfirmation: "different",
	}
	if err := ValidateStruct(&p); err == nil {
		t.Fatal("expected error for mismatched confirmation")
	}
}

func TestValidateStruct_PasswordTooShort(t *testing.T) {
	p := registerPayload{
		Name:                 "Budi",
		Number:               "81234567890",
		Password:             "abc",
		PasswordConfirmation: "abc",
	}
	if err := ValidateStruct(&p); err == nil {
		t.Fatal("expected error for short password")
	}
}
