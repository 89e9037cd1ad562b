package main

import (
	"os/signal"
	"syscall"

	"github.com/xStarless-Skyx/skparse/sio"

	"github.com/spf13/cobra"
)

var (
	mqttBroker string
	mqttTopic  string
)

var mqttCmd = &cobra.Command{
	Use:   "mqtt",
	Short: "Answer JSON requests published to an MQTT topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		conf := cfg.MQTT
		if mqttBroker != "" {
			conf.Broker = mqttBroker
		}
		if mqttTopic != "" {
			conf.RequestTopic = mqttTopic
		}

		svc, closer, err := newService(ctx)
		if err != nil {
			return err
		}
		defer closer()

		b, err := sio.NewMQTT(&conf, svc, logger.Named("mqtt"))
		if err != nil {
			return err
		}
		if err = b.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		b.Stop()
		return nil
	},
}

func init() {
	mqttCmd.Flags().StringVar(&mqttBroker, "broker", "", "broker URL (default from config)")
	mqttCmd.Flags().StringVar(&mqttTopic, "topic", "", "request topic, optionally TOPIC:QOS (default from config)")
}
