package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClampsPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := map[string]int{"": 1, "?page=3": 3, "?page=0": 1, "?page=-2": 1, "?page=abc": 1}
	for query, want := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/users"+query+"&limit=50", nil)
		if query == "" {
			c.Request = httptest.NewRequest("GET", "/users?limit=50", nil)
		}
		p := Parse(c)
		assert.Equal(t, want, p.Page, query)
		assert.Equal(t, PerPage, p.Limit, "limit is not client controlled")
		assert.Equal(t, (want-1)*PerPage, p.Offset)
	}
}

func TestNewPageEnvelope(t *testing.T) {
	items := []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	p := NewPage(items, 25, New(2), "http://api.test/users")

	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, 3, p.LastPage)
	assert.Equal(t, 10, p.PerPage)
	require.NotNil(t, p.From)
	require.NotNil(t, p.To)
	assert.Equal(t, 11, *p.From)
	assert.Equal(t, 20, *p.To)
	require.NotNil(t, p.NextPageURL)
	assert.Equal(t, "http://api.test/users?page=3", *p.NextPageURL)
	require.NotNil(t, p.PrevPageURL)
	assert.Equal(t, "http://api.test/users?page=1", *p.PrevPageURL)
	assert.Equal(t, "http://api.test/users?page=3", p.LastPageURL)
}

func TestNewPageEmpty(t *testing.T) {
	p := NewPage[string](nil, 0, New(1), "http://api.test/roles")

	assert.NotNil(t, p.Data)
	assert.Empty(t, p.Data)
	assert.Equal(t, 1, p.LastPage)
	assert.Nil(t, p.From)
	assert.Nil(t, p.NextPageURL)
	assert.Nil(t, p.PrevPageURL)
}
