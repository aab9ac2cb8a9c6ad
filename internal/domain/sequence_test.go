package domain_test

import (
	"testing"

	"github.com/rodrigofontes/vendaspro/internal/domain"
)

func TestNextOrderNumber(t *testing.T) {
	cases := []struct {
		name    string
		last    string
		want    string
		wantErr error
	}{
		{name: "first", last: "", want: "#00001"},
		{name: "increment", last: "#00001", want: "#00002"},
		{name: "zero padded", last: "#00099", want: "#00100"},
		{name: "grows beyond five digits", last: "#99999", want: "#100000"},
		{name: "six digits", last: "#100000", want: "#100001"},
		{name: "missing hash", last: "00001", wantErr: domain.ErrNumberFormat},
		{name: "too short", last: "#1", wantErr: domain.ErrNumberFormat},
		{name: "not a number", last: "#abcde", wantErr: domain.ErrNumberFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.NextOrderNumber(tc.last)
			if tc.wantErr != nil {
				if err != tc.wantErr {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestParseOrderNumber(t *testing.T) {
	seq, err := domain.ParseOrderNumber("#00042")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if seq != 42 {
		t.Fatalf("expected 42, got %d", seq)
	}
}

func TestFormatOrderNumber(t *testing.T) {
	if got := domain.FormatOrderNumber(7); got != "#00007" {
		t.Fatalf("expected #00007, got %s", got)
	}
	if got := domain.FormatOrderNumber(123456); got != "#123456" {
		t.Fatalf("expected #123456, got %s", got)
	}
}
