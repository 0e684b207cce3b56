package comm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChan(t *testing.T) {
	c := NewChan(2)
	src := []byte("pose")
	require.NoError(t, c.WritePacket(src))
	src[0] = 'x'
	pkt, err := c.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("pose"), pkt)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	_, err = c.ReadPacket()
	require.Equal(t, ErrClosed, err)
	require.Equal(t, ErrClosed, c.WritePacket(src))
}
