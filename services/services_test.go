package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	cases := map[uint16]string{
		22:    "ssh",
		80:    "http",
		443:   "https",
		3306:  "mysql",
		9998:  Unknown,
		65535: Unknown,
	}
	for port, want := range cases {
		assert.Equal(t, want, Lookup(port), "port %d", port)
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	custom := Default.With(map[uint16]string{22: "bastion", 9998: "my-api"})

	assert.Equal(t, "bastion", custom.Lookup(22))
	assert.Equal(t, "my-api", custom.Lookup(9998))
	assert.Equal(t, "http", custom.Lookup(80))

	assert.Equal(t, "ssh", Lookup(22))
	assert.Equal(t, Unknown, Lookup(9998))
}

func TestEmptyNameIsUnknown(t *testing.T) {
	tbl := Table{1234: ""}
	assert.Equal(t, Unknown, tbl.Lookup(1234))
}

func TestNilTable(t *testing.T) {
	var tbl Table
	assert.Equal(t, Unknown, tbl.Lookup(22))
	assert.Equal(t, "x", tbl.With(map[uint16]string{22: "x"}).Lookup(22))
}
