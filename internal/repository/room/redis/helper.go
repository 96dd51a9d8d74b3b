package redis

import (
	"context"
	"encoding/json"
	"reflect"
	"strconv"

	"github.com/redis/go-redis/v9"
)

func (r repo) HSetStruct(ctx context.Context, c redis.Pipeliner, key string, value interface{}) error {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	fields := make(map[string]interface{})
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("redis")
		if tag == "" {
			tag = t.Field(i).Name
		}

		fields[tag] = field.Interface()
	}

	return c.HSet(ctx, key, fields).Err()
}

// setJSON queues value encoded as JSON under key.
func (r repo) setJSON(ctx context.Context, c redis.Pipeliner, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.Set(ctx, key, data, r.roomExp).Err()
}

// getJSON decodes a value returned by MGET. Missing keys leave dst as is.
func (r repo) getJSON(value any, dst any) error {
	s, ok := value.(string)
	if !ok || s == "" {
		return nil
	}

	return json.Unmarshal([]byte(s), dst)
}

func (r repo) fieldToBool(field string) bool {
	return field == "1"
}

func (r repo) fieldToInt64(field string) int64 {
	i, _ := strconv.ParseInt(field, 10, 64)
	return i
}

func (r repo) fieldToFload64(field string) float64 {
	f, _ := strconv.ParseFloat(field, 64)
	return f
}
