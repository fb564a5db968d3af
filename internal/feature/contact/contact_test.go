package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"estate-market/internal/domain"
)

func TestMailtoURL(t *testing.T) {
	u := domain.User{Username: "ann", Email: "ann@mail.test"}
	l := domain.Listing{Name: "Cozy Downtown Loft"}

	got := MailtoURL(u, l, "Is it still available? 2 people & a cat")
	assert.Equal(t,
		"mailto:ann@mail.test?subject=Regarding%20Cozy%20Downtown%20Loft&body=Is%20it%20still%20available%3F%202%20people%20%26%20a%20cat",
		got)
	assert.Equal(t, "Contact ann for cozy downtown loft", Intro(u, l))
}
