package kafka

import (
	"testing"
)

func TestMessagesEncodesJSON(t *testing.T) {
	msgs, err := Messages([]Event{{Key: "graph", Value: map[string]int{"hits": 3}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || string(msgs[0].Key) != "graph" || string(msgs[0].Value) != `{"hits":3}` {
		t.Errorf("messages = %+v", msgs)
	}
	if _, err := Messages([]Event{{Key: "bad", Value: make(chan int)}}); err == nil {
		t.Error("expected marshal error")
	}
}
