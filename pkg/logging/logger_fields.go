package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Domain field helpers

func Component(name string) Field {
	return String("component", name)
}

func RunID(id string) Field {
	return String("run_id", id)
}

func Round(n int) Field {
	return Int("round", n)
}

func Vertices(n int) Field {
	return Int("vertices", n)
}

func Edges(n int) Field {
	return Int("edges", n)
}

func Active(n int64) Field {
	return Int64("active", n)
}

func Communities(n int) Field {
	return Int("communities", n)
}

func Modularity(q float64) Field {
	return Float64("modularity", q)
}

func Resource(uri string) Field {
	return String("resource", uri)
}

func Line(n int) Field {
	return Int("line", n)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}
