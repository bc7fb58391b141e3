package websocketdto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboundIDs(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		driver   string
		customer string
		id       string
	}{
		{"strings", `{"driverId":"D1","customerId":"C1","id":"R1"}`, "D1", "C1", "R1"},
		{"numbers", `{"driver_id":5,"customer_id":7,"id":9}`, "5", "7", "9"},
		{"camel case wins", `{"driverId":"D1","driver_id":"D2","customerId":"C1","customer_id":"C2"}`, "D1", "C1", ""},
		{"null and objects", `{"driverId":null,"customerId":{"x":1},"id":null}`, "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg Inbound
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &msg))
			assert.Equal(t, tt.driver, msg.Driver())
			assert.Equal(t, tt.customer, msg.Customer())
			assert.Equal(t, tt.id, msg.IDString())
		})
	}
}

func TestRideDetailsTarget(t *testing.T) {
	var d RideDetails
	require.NoError(t, json.Unmarshal([]byte(`{"status":"offer","rider_id":5}`), &d))
	assert.Equal(t, "5", d.Target())

	require.NoError(t, json.Unmarshal([]byte(`{"status":"offer","rider_id":"D2","targetId":"D1"}`), &d))
	assert.Equal(t, "D1", d.Target())
}
