package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"weather-lookup/internal/lookup"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	enabled     bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
}

type statusPayload struct {
	Location    string      `json:"location"`
	Country     string      `json:"country"`
	Temperature float64     `json:"temperature_c"`
	FeelsLike   float64     `json:"feels_like_c"`
	Humidity    float64     `json:"humidity"`
	Pressure    float64     `json:"pressure_hpa"`
	WindSpeed   float64     `json:"wind_speed_ms"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Daily       interface{} `json:"daily"`
	FetchedAt   time.Time   `json:"fetched_at"`
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.TopicPrefix,
		enabled:     true,
	}, nil
}

// Slug turns a city name into a topic segment.
func Slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "unknown"
	}
	return strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}), "_")
}

func (p *Publisher) Publish(result *lookup.Result) error {
	if p == nil || !p.enabled || result == nil || result.Current == nil {
		return nil
	}

	current := result.Current
	condition := current.Condition()
	device := Slug(current.Name)

	topics := map[string]interface{}{
		"temperature": current.Main.Temp,
		"feels_like":  current.Main.FeelsLike,
		"temp_min":    current.Main.TempMin,
		"temp_max":    current.Main.TempMax,
		"humidity":    current.Main.Humidity,
		"pressure":    current.Main.Pressure,
		"wind_speed":  current.Wind.Speed,
		"wind_deg":    current.Wind.Deg,
		"description": condition.Description,
		"icon":        condition.Icon,
	}

	for name, value := range topics {
		topic := fmt.Sprintf("%s/%s/%s", p.topicPrefix, device, name)
		payload := fmt.Sprintf("%v", value)
		token := p.client.Publish(topic, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("Failed to publish to %s: %v", topic, token.Error())
		}
	}

	statusJSON, err := json.Marshal(statusPayload{
		Location:    current.Name,
		Country:     current.Sys.Country,
		Temperature: current.Main.Temp,
		FeelsLike:   current.Main.FeelsLike,
		Humidity:    current.Main.Humidity,
		Pressure:    current.Main.Pressure,
		WindSpeed:   current.Wind.Speed,
		Description: condition.Description,
		Icon:        condition.Icon,
		Daily:       result.Daily,
		FetchedAt:   result.FetchedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	statusTopic := fmt.Sprintf("%s/%s/status", p.topicPrefix, device)
	token := p.client.Publish(statusTopic, 0, true, statusJSON)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish status: %w", token.Error())
	}

	return nil
}

// PublishHomeAssistantDiscovery announces sensors for one city.
func (p *Publisher) PublishHomeAssistantDiscovery(city string) error {
	if p == nil || !p.enabled {
		return nil
	}

	device := Slug(city)
	sensors := []struct {
		Name        string
		ID          string
		Unit        string
		DeviceClass string
	}{
		{"Temperature", "temperature", "°C", "temperature"},
		{"Feels Like", "feels_like", "°C", "temperature"},
		{"Humidity", "humidity", "%", "humidity"},
		{"Pressure", "pressure", "hPa", "atmospheric_pressure"},
		{"Wind Speed", "wind_speed", "m/s", "wind_speed"},
		{"Conditions", "description", "", ""},
	}

	for _, sensor := range sensors {
		discoveryTopic := fmt.Sprintf("homeassistant/sensor/weather_%s/%s/config", device, sensor.ID)

		config := map[string]interface{}{
			"name":        fmt.Sprintf("%s %s", city, sensor.Name),
			"unique_id":   fmt.Sprintf("weather_%s_%s", device, sensor.ID),
			"state_topic": fmt.Sprintf("%s/%s/%s", p.topicPrefix, device, sensor.ID),
			"device": map[string]interface{}{
				"identifiers": []string{"weather_lookup_" + device},
				"name":        "Weather " + city,
				"model":       "OpenWeather",
			},
		}
		if sensor.Unit != "" {
			config["unit_of_measurement"] = sensor.Unit
		}
		if sensor.DeviceClass != "" {
			config["device_class"] = sensor.DeviceClass
		}

		payload, _ := json.Marshal(config)
		token := p.client.Publish(discoveryTopic, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("failed to publish discovery for %s: %w", sensor.ID, token.Error())
		}
	}

	return nil
}

func (p *Publisher) IsConnected() bool {
	if p == nil || !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p != nil && p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
