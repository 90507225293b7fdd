package suggestions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_EachKind(t *testing.T) {
	cases := []struct {
		name string
		json string
		kind Kind
	}{
		{"adjust", `{"kind":"adjustWorkout","workoutId":"w1","intensityChange":"easier"}`, KindAdjustWorkout},
		{"swap", `{"kind":"swapWorkouts","workoutId":"w1","newDate":"2026-03-01"}`, KindSwapWorkouts},
		{"move", `{"kind":"moveWorkout","workoutId":"w1","newDate":"2026-03-01"}`, KindMoveWorkout},
		{"recovery", `{"kind":"addRecoveryDay","date":"2026-03-01","replacement":"rest"}`, KindAddRecoveryDay},
		{"rebalance", `{"kind":"rebalanceWeek","changes":[{"workoutId":"w1","durationMin":40}]}`, KindRebalanceWeek},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := Decode([]byte(tc.json))
			require.NoError(t, err)
			assert.Equal(t, tc.kind, payload.Kind())
		})
	}
}

func TestDecode_UnknownKindNamesTheValue(t *testing.T) {
	_, err := Decode([]byte(`{"kind":"teleportWorkout","workoutId":"w1"}`))

	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Contains(t, err.Error(), "teleportWorkout", "the error must name the offending kind")
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))

	assert.ErrorIs(t, err, ErrValidation)
}

func TestDecode_MissingRequiredFields(t *testing.T) {
	cases := []string{
		`{"kind":"adjustWorkout"}`,                                 // no workoutId
		`{"kind":"adjustWorkout","workoutId":"w1"}`,                // no delta at all
		`{"kind":"moveWorkout","workoutId":"w1"}`,                  // no newDate
		`{"kind":"swapWorkouts","newDate":"2026-03-01"}`,           // no workoutId
		`{"kind":"addRecoveryDay","date":"2026-03-01"}`,            // no replacement
		`{"kind":"addRecoveryDay","date":"x","replacement":"nap"}`, // bad replacement
		`{"kind":"rebalanceWeek","changes":[]}`,                    // empty batch
		`{"kind":"rebalanceWeek","changes":[{"durationMin":30}]}`,  // change without id
	}
	for _, body := range cases {
		_, err := Decode([]byte(body))
		assert.ErrorIs(t, err, ErrValidation, "payload %s should fail validation", body)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	original := &MoveWorkout{WorkoutID: "w1", NewDate: "2026-03-01"}

	data, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded, "encode/decode must preserve the payload")
}

func TestEncode_InjectsKind(t *testing.T) {
	data, err := Encode(&AddRecoveryDay{Date: "2026-03-01", Replacement: "walk"})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"kind":"addRecoveryDay"`)
}
