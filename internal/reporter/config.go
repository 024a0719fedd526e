// Package reporter wires the vehicle registry to its MQTT and HTTP surfaces.
package reporter

import (
	"fmt"
	"os"

	"github.com/autopeer-io/cpeer-report/internal/remote"
	"github.com/autopeer-io/cpeer-report/internal/reporter/server"
	"github.com/autopeer-io/cpeer-report/internal/reporter/server/http"
	"github.com/autopeer-io/cpeer-report/internal/reporter/server/mqtt"
	"github.com/autopeer-io/cpeer-report/internal/vehicle"
	"github.com/autopeer-io/cpeer-report/pkg/log"
	pkgmqtt "github.com/autopeer-io/cpeer-report/pkg/mqtt"
	"github.com/autopeer-io/cpeer-report/pkg/mqtt/topic"
	"github.com/autopeer-io/cpeer-report/pkg/options"
)

type Config struct {
	HttpOptions   *options.HttpOptions
	MqttOptions   *options.MqttOptions
	RemoteOptions *options.RemoteOptions
}

// NewServer builds the registry and the MQTT and HTTP servers sharing it.
func (cfg *Config) NewServer() (*server.Manager, error) {
	registry := vehicle.NewRegistry(log.Std())
	topics := topic.NewBuilder(cfg.MqttOptions.TopicRoot)

	mqttConfig := cfg.MqttOptions.ToClientConfig()
	if mqttConfig.ClientID == "" {
		mqttConfig.ClientID = defaultClientID()
	}
	mqttConfig.WillTopic = topics.Build(topic.Presence, mqttConfig.ClientID)
	mqttConfig.WillPayload = mqtt.PresencePayload(mqttConfig.ClientID, false)
	mqttConfig.WillQoS = byte(cfg.MqttOptions.QoS)
	mqttConfig.WillRetain = true

	client, err := pkgmqtt.NewClient(mqttConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to init mqtt client: %w", err)
	}

	var commander *remote.Commander
	if cfg.RemoteOptions != nil && cfg.RemoteOptions.Enabled {
		commander = remote.NewCommander(client, topics, cfg.MqttOptions.QoS, remote.Poller{
			Interval: cfg.RemoteOptions.PollInterval,
			Timeout:  cfg.RemoteOptions.PollTimeout,
		})
	}

	mqttSrv := mqtt.NewServer(client, topics, registry, commander, mqttConfig.ClientID, cfg.MqttOptions.ShareGroup, cfg.MqttOptions.QoS)
	httpSrv := http.NewServer(cfg.HttpOptions, http.Backend{
		Registry:  registry,
		Commander: commander,
		Ready:     mqttSrv.Ready,
		Publish:   mqttSrv.PublishReport,
	})

	return server.NewManager(mqttSrv, httpSrv), nil
}

func defaultClientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = fmt.Sprintf("pid-%d", os.Getpid())
	}
	return "cpeer-report-" + host
}
