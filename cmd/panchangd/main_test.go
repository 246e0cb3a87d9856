/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/friendsincode/panchangam/internal/auth"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("PANCHANG_CACHE_BACKEND", "memory")
	t.Setenv("PANCHANG_ENV", "test")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("panchangd %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestComputeCommand(t *testing.T) {
	out := execute(t, "compute", "--date", "2024-03-08", "--lat", "13.0827", "--lon", "80.2707", "--tz", "Asia/Kolkata")
	var day struct {
		Date  string `json:"date"`
		Tithi struct {
			Name string `json:"name"`
		} `json:"tithi"`
	}
	if err := json.Unmarshal([]byte(out), &day); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if day.Date != "2024-03-08" || day.Tithi.Name == "" {
		t.Errorf("day = %+v", day)
	}
}

func TestFestivalsCommandICS(t *testing.T) {
	out := execute(t, "festivals", "--year", "2024", "--month", "3", "--lat", "13.0827", "--lon", "80.2707", "--region", "TN", "--ics")
	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "Maha Shivaratri") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("PANCHANG_JWT_SIGNING_KEY", "cli-secret")
	out := strings.TrimSpace(execute(t, "token", "--subject", "ops", "--ttl", "10m"))
	claims, err := auth.Parse([]byte("cli-secret"), out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "ops" || !claims.HasRole(auth.RoleAdmin) {
		t.Errorf("claims = %+v", claims)
	}
}
