package database

import (
	"testing"

	"estate-market/internal/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		name, in, user, pass, want string
	}{
		{
			name: "native passthrough",
			in:   "u:p@tcp(db:3306)/estate?parseTime=true",
			want: "u:p@tcp(db:3306)/estate?parseTime=true",
		},
		{
			name: "url form",
			in:   "mysql://root:pw@db:3306/estate",
			want: "root:pw@tcp(db:3306)/estate?charset=utf8mb4&parseTime=true",
		},
		{
			name: "jdbc with overrides",
			in:   "jdbc:mysql://db:3306/estate?useSSL=false&characterEncoding=utf8&useUnicode=true",
			user: "app", pass: "secret",
			want: "app:secret@tcp(db:3306)/estate?charset=utf8&parseTime=true&tls=false",
		},
		{
			name: "credentials in query",
			in:   "mysql://db/estate?user=q&password=w&serverTimezone=UTC",
			want: "q:w@tcp(db)/estate?charset=utf8mb4&loc=UTC&parseTime=true",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeMySQLDSN(tc.in, tc.user, tc.pass))
		})
	}
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:****@tcp(db)/x", maskDSN("root:pw@tcp(db)/x"))
	assert.Equal(t, "tcp(db)/x", maskDSN("tcp(db)/x"))
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(config.DB{Driver: "oracle"}, zap.NewNop())
	require.ErrorIs(t, err, ErrUnsupportedDriver)
}
