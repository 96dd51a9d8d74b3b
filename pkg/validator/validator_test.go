package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type video struct {
	Host string `json:"host" validate:"required,oneof=youtube m3u8"`
	Id   string `json:"id" validate:"required"`
}

type addVideo struct {
	RoomId string `json:"roomId" validate:"required"`
	Video  video  `json:"video"`
}

type rate struct {
	PlaybackRate float64 `json:"playbackRate" validate:"gt=0"`
	Message      string  `json:"message" validate:"max=4"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	errs, ok := v.Validate(addVideo{RoomId: "room-42", Video: video{Host: "youtube", Id: "x"}})
	assert.True(t, ok)
	assert.Empty(t, errs)

	errs, ok = v.Validate(addVideo{Video: video{Host: "dailymotion", Id: "x"}})
	require.False(t, ok)
	assert.Equal(t, []ValidationError{
		{Field: "roomId", Code: "REQUIRED", Message: "roomId is required"},
		{Field: "host", Code: "ONEOF", Message: "host must be one of: youtube m3u8"},
	}, errs)

	errs, ok = v.Validate(rate{Message: "hello"})
	require.False(t, ok)
	require.Len(t, errs, 2)
	assert.Equal(t, "playbackRate must be greater than 0", errs[0].Message)
	assert.Equal(t, "MAX", errs[1].Code)
}

func TestStruct(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Struct(rate{PlaybackRate: 1}))

	err := v.Struct(rate{PlaybackRate: 1, Message: "too long"})
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "message must not exceed 4 characters", err.Error())
}
