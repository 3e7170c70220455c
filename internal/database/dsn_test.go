package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cases := []struct {
		name  string
		build func(Config) (string, error)
		cfg   Config
		want  string
	}{
		{
			name:  "postgres defaults",
			build: buildPostgresDSN,
			cfg:   Config{User: "agent", Name: "hvac"},
			want:  "host=localhost port=5432 user=agent dbname=hvac sslmode=disable",
		},
		{
			name:  "postgres options sorted and overriding",
			build: buildPostgresDSN,
			cfg: Config{
				User: "agent", Name: "hvac", Host: "db.internal", Port: 6543, Password: "pw",
				Options: map[string]string{"sslmode": "require", "application_name": "agent"},
			},
			want: "host=db.internal port=6543 user=agent dbname=hvac password=pw application_name=agent sslmode=require",
		},
		{
			name:  "mysql defaults",
			build: buildMySQLDSN,
			cfg:   Config{User: "agent", Name: "hvac"},
			want:  "agent@tcp(127.0.0.1:3306)/hvac?charset=utf8mb4&loc=Local&parseTime=True",
		},
		{
			name:  "mysql with password and tls",
			build: buildMySQLDSN,
			cfg: Config{
				User: "agent", Password: "secret", Name: "hvac", Host: "mysql.internal", Port: 3307,
				Options: map[string]string{"tls": "skip-verify"},
			},
			want: "agent:secret@tcp(mysql.internal:3307)/hvac?charset=utf8mb4&loc=Local&parseTime=True&tls=skip-verify",
		},
		{
			name:  "dsn override wins",
			build: buildMySQLDSN,
			cfg:   Config{DSN: "custom"},
			want:  "custom",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.build(tc.cfg)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestBuildDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)

	_, err = buildMySQLDSN(Config{Host: "localhost"})
	require.Error(t, err)
}
