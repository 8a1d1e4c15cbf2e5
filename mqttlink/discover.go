package mqttlink

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/mdns"
)

// BrokerService is the mDNS service type brokers advertise.
const BrokerService = "_mqtt._tcp"

// query is swapped out in tests.
var query = mdns.Query

// DiscoverBroker returns the URL of the first broker that answers on mDNS
// within timeout. A failed query (no usable interface, socket error) is
// returned as such, not as an empty result.
func DiscoverBroker(timeout time.Duration, log *slog.Logger) (string, error) {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	entries := make(chan *mdns.ServiceEntry, 4)
	params := mdns.DefaultParams(BrokerService)
	params.Entries = entries
	params.Timeout = timeout

	queryErr := make(chan error, 1)
	go func() { queryErr <- query(params) }()

	for {
		select {
		case entry := <-entries:
			url, err := brokerURL(entry)
			if err != nil {
				log.Debug("skipping broker entry", "service_name", entry.Name, "error", err)
				continue
			}
			log.Info("discovered mqtt broker", "service_name", entry.Name, "url", url)
			return url, nil

		case err := <-queryErr:
			if err != nil {
				return "", fmt.Errorf("mDNS lookup for %s: %w", BrokerService, err)
			}
			for {
				select {
				case entry := <-entries:
					if url, err := brokerURL(entry); err == nil {
						log.Info("discovered mqtt broker", "service_name", entry.Name, "url", url)
						return url, nil
					}
				default:
					return "", fmt.Errorf("no %s service found within %s", BrokerService, timeout)
				}
			}
		}
	}
}

func brokerURL(entry *mdns.ServiceEntry) (string, error) {
	switch {
	case entry.AddrV4 != nil:
		return fmt.Sprintf("tcp://%s:%d", entry.AddrV4, entry.Port), nil
	case entry.AddrV6 != nil:
		return fmt.Sprintf("tcp://[%s]:%d", entry.AddrV6, entry.Port), nil
	}
	return "", fmt.Errorf("no valid address found for %s", entry.Name)
}
