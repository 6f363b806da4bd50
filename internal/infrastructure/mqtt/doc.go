// Package mqtt provides MQTT connectivity for the soundscape controller.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and a bounded wait for the broker
//   - Subscriptions that survive reconnects
//   - A retained health status with an offline Last Will
//
// # Topics
//
// Every site owns one topic per category:
//
//	graylogic/command/soundscape/{site}   commands in
//	graylogic/ack/soundscape/{site}       command acknowledgements
//	graylogic/state/soundscape/{site}     retained scheduler status
//	graylogic/event/soundscape/{site}     scheduler transitions
//	graylogic/health/soundscape/{site}    retained online/offline, LWT
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Site.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().Command(), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(payload)
//	    })
//
// # Security Considerations
//
// Enable TLS (mqtt.broker.tls) outside a trusted LAN. Credentials should be
// supplied through SOUNDSCAPE_MQTT_USERNAME and SOUNDSCAPE_MQTT_PASSWORD.
package mqtt
