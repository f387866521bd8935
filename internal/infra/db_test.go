package infra

import "testing"

func TestPoolConfigAppliesSizing(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://user:pw@localhost:5432/donations", DBMaxConns: 4, DBMinConns: 2}
	pc, err := poolConfig(cfg)
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if pc.MaxConns != 4 || pc.MinConns != 2 {
		t.Fatalf("pool size = %d/%d, want 2/4", pc.MinConns, pc.MaxConns)
	}
	if pc.ConnConfig.RuntimeParams["application_name"] != "donationhub" {
		t.Fatalf("application_name not set: %v", pc.ConnConfig.RuntimeParams)
	}

	if _, err := poolConfig(&Config{DatabaseURL: "::not a url"}); err == nil {
		t.Fatal("expected parse error")
	}
}
