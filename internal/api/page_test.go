package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageableQuery(t *testing.T) {
	assert.Equal(t, "?page=0&size=10", Pageable{}.query())
	assert.Equal(t, "?page=2&size=25", Pageable{Page: 2, Size: 25}.query())
	assert.Equal(t, "?page=0&size=20&sort=titulo%2Casc",
		Pageable{Size: 20, Sort: "titulo,asc"}.query())
}
