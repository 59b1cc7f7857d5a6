package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestMongoUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Minute)

	t.Run("source and turns", func(t *testing.T) {
		update := mongoUpdate(Delta{
			Source: &Source{Type: "text", Text: "notes"},
			Turns: []Turn{
				{Role: RoleUser, Text: "q", At: earlier},
				{Role: RoleAssistant, Text: "a"},
			},
		}, now, 4)

		assert.Equal(t, bson.M{"created_at": now}, update["$setOnInsert"])
		assert.Equal(t, bson.M{"updated_at": now, "source": Source{Type: "text", Text: "notes"}}, update["$set"])

		push, ok := update["$push"].(bson.M)
		require.True(t, ok)
		turns, ok := push["turns"].(bson.M)
		require.True(t, ok)
		assert.Equal(t, -4, turns["$slice"])
		assert.Equal(t, []Turn{
			{Role: RoleUser, Text: "q", At: earlier},
			{Role: RoleAssistant, Text: "a", At: now},
		}, turns["$each"])
	})

	t.Run("touch only", func(t *testing.T) {
		update := mongoUpdate(Delta{}, now, 4)
		assert.Equal(t, bson.M{"updated_at": now}, update["$set"])
		assert.NotContains(t, update, "$push")
	})

	t.Run("unbounded turns", func(t *testing.T) {
		update := mongoUpdate(Delta{Turns: []Turn{{Role: RoleUser, Text: "q"}}}, now, 0)
		turns := update["$push"].(bson.M)["turns"].(bson.M)
		assert.NotContains(t, turns, "$slice")
		_, hasSource := update["$set"].(bson.M)["source"]
		assert.False(t, hasSource)
	})

	t.Run("encodes as bson", func(t *testing.T) {
		_, err := bson.Marshal(mongoUpdate(Delta{Turns: []Turn{{Role: RoleUser, Text: "q"}}}, now, 2))
		require.NoError(t, err)
	})
}
