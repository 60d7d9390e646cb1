package connection

import "testing"

func TestNormalizeEventType(t *testing.T) {
	cases := map[string]string{
		"message.created":      "message_created",
		"order.updated":        "order_updated",
		"campaign.metrics":     "campaign_metrics",
		"conversation.updated": "conversation_updated",
		"message_created":      "message_created",
		"custom_event":         "custom_event",
	}
	for in, want := range cases {
		if got := normalizeEventType(in); got != want {
			t.Errorf("normalizeEventType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestControlAndHousekeepingClassification(t *testing.T) {
	for _, typ := range []string{"ping", "pong"} {
		if !isControlType(typ) {
			t.Errorf("%q should be a control type", typ)
		}
	}
	for _, typ := range []string{"connection_established", "subscribed", "unsubscribed"} {
		if !isHousekeepingType(typ) {
			t.Errorf("%q should be housekeeping", typ)
		}
		if isControlType(typ) {
			t.Errorf("%q must not be classified as control", typ)
		}
	}
	if isHousekeepingType("order_created") || isControlType("order_created") {
		t.Error("application events must not be filtered")
	}
}
