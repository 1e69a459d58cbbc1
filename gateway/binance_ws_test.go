package gateway

import "testing"

func TestParseBookTicker(t *testing.T) {
	msg := []byte(`{"u":400900217,"s":"NANOUSDT","b":"1.22900000","B":"31.21","a":"1.23500000","A":"40.66"}`)
	bid, ask, err := parseBookTicker(msg)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if bid != 1.229 || ask != 1.235 {
		t.Fatalf("unexpected top %v/%v", bid, ask)
	}
}

func TestParseBookTickerRejectsOtherFrames(t *testing.T) {
	if _, _, err := parseBookTicker([]byte(`{"result":null,"id":1}`)); err == nil {
		t.Fatalf("expected error for non-ticker frame")
	}
	if _, _, err := parseBookTicker([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestBookTickerStreamTopEmpty(t *testing.T) {
	s := NewBookTickerStream("NANOUSDT")
	if _, _, _, ok := s.Top(); ok {
		t.Fatalf("expected no data before first frame")
	}
}
