package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hindsight/internal/testutil"
)

func TestUniverse_UnlockOf(t *testing.T) {
	u := build(t, testutil.Records(
		rec("l1", "LOCK", "t1@p1").Set("variable", "x"),
		rec("l2", "LOCK", "t1@p1").Set("variable", "x"),
		rec("u1", "UNLOCK", "t1@p1").Set("variable", "x"),
		rec("l3", "LOCK", "t2@p1").Set("variable", "x").Order(10),
		rec("l4", "LOCK", "t1@p1").Set("variable", "y"),
		rec("u2", "UNLOCK", "t2@p1").Set("variable", "x").Order(11),
	))

	unlock, ok, err := u.UnlockOf("l1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", unlock.ID)

	_, ok, err = u.UnlockOf("l2")
	require.NoError(t, err)
	assert.False(t, ok, "re-entrant lock has no unlock of its own")

	unlock, ok, err = u.UnlockOf("l3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u2", unlock.ID, "other variables do not interfere")

	_, ok, err = u.UnlockOf("l4")
	require.NoError(t, err)
	assert.False(t, ok, "never released")

	_, _, err = u.UnlockOf("u1")
	assert.Error(t, err)
	_, _, err = u.UnlockOf("zz")
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestUniverse_JoinOf(t *testing.T) {
	u := build(t, testutil.Records(
		rec("c2", "CREATE", "t1@p1").Set("child", "t2@p1"),
		rec("c3", "CREATE", "t1@p1").Set("child", "t3"),
		rec("e2", "END", "t2@p1"),
		rec("e3", "END", "t3@p1"),
		rec("e4", "END", "t4@p2"),
		rec("j3", "JOIN", "t1@p1").Dep("e3").Set("child", "t3"),
		rec("j2", "JOIN", "t1@p1").Dep("e2").Set("child", "t2@p1"),
	))

	join, ok, err := u.JoinOf("e2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "j2", join.ID)

	join, ok, err = u.JoinOf("e3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "j3", join.ID, "bare child name matches within the joining process")

	_, ok, err = u.JoinOf("e4")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = u.JoinOf("c2")
	assert.Error(t, err)
}

func stream(id, kind, src, dst string, size int) *testutil.RecordBuilder {
	b := rec(id, kind, "t1@p1").Set("socket", "s-"+src+"-"+dst).Set("size", size)
	if src != "" {
		b.Set("src", src).Set("src_port", 80).Set("dst", dst).Set("dst_port", 90)
	}
	return b
}

func messageFixture(t *testing.T) *Universe {
	return build(t, testutil.Records(
		stream("s1", "SND", "10.0.0.1", "10.0.0.2", 10),
		stream("r1", "RCV", "10.0.0.1", "10.0.0.2", 4),
		stream("r2", "RCV", "10.0.0.1", "10.0.0.2", 6),
		stream("s2", "SND", "10.0.0.1", "10.0.0.2", 3),
		stream("s3", "SND", "10.0.0.1", "10.0.0.2", 5),
		stream("r3", "RCV", "10.0.0.1", "10.0.0.2", 8),
		stream("s4", "SND", "10.0.0.1", "10.0.0.2", 7),
		stream("s5", "SND", "", "", 2),
		stream("r4", "RCV", "", "", 2),
		rec("log", "LOG", "t1@p1"),
	))
}

func TestUniverse_Messages(t *testing.T) {
	msgs := messageFixture(t).Messages()
	require.Len(t, msgs, 4)

	assert.Equal(t, "s1", msgs[0].ID)
	assert.Equal(t, "10.0.0.1:80-10.0.0.2:90", msgs[0].Channel)
	assert.Equal(t, []string{"s1"}, ids(msgs[0].Sends))
	assert.Equal(t, []string{"r1", "r2"}, ids(msgs[0].Receives))
	assert.True(t, msgs[0].Complete())

	assert.Equal(t, "r3", msgs[1].ID, "receive larger than the first send names the message")
	assert.Equal(t, []string{"s2", "s3"}, ids(msgs[1].Sends))
	assert.Equal(t, int64(8), msgs[1].SentBytes)
	assert.True(t, msgs[1].Complete())

	assert.Equal(t, "s4", msgs[2].ID)
	assert.Empty(t, msgs[2].Receives)
	assert.False(t, msgs[2].Complete())

	assert.Equal(t, "s--", msgs[3].Channel, "socket id when endpoints are missing")
	assert.True(t, msgs[3].Complete())
}

func TestUniverse_MessageParts(t *testing.T) {
	u := messageFixture(t)

	m, err := u.MessageParts("r2")
	require.NoError(t, err)
	assert.Equal(t, "s1", m.ID)
	assert.Equal(t, int64(10), m.ReceivedBytes)

	m, err = u.MessageParts("s3")
	require.NoError(t, err)
	assert.Equal(t, "r3", m.ID)

	_, err = u.MessageParts("log")
	assert.Error(t, err)
	_, err = u.MessageParts("zz")
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestUniverse_MessagesEmpty(t *testing.T) {
	u := build(t, testutil.Records(rec("1", "LOG", "t1@p1")))
	assert.Empty(t, u.Messages())

	_, err := u.MessageParts("1")
	assert.Error(t, err)
}
