package pinecone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vecmigrate/vecmigrate/vectorstore"
)

func TestIsLocalDetectsLoopbackHosts(t *testing.T) {
	cases := []struct {
		host string
		want bool
	}{
		{"http://localhost:5080", true},
		{"http://127.0.0.1:5080", true},
		{"http://[::1]:5080", true},
		{"https://my-index-abc123.svc.us-east1-gcp.pinecone.io", false},
	}
	for _, c := range cases {
		d := New(c.host, "key", "idx", "aws", "us-east-1", 8, vectorstore.MetricCosine)
		assert.Equal(t, c.want, d.isLocal(), c.host)
	}
}

func TestEnsureDataPlaneHostReturnsHostDirectlyWhenLocal(t *testing.T) {
	d := New("http://localhost:5080", "key", "idx", "aws", "us-east-1", 8, vectorstore.MetricCosine)
	host, err := d.ensureDataPlaneHost(nil)
	assert.NoError(t, err)
	assert.Equal(t, "http://localhost:5080", host)
}
