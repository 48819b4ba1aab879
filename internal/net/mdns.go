package net

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service a labelling server advertises.
const ServiceType = "_filament-label._tcp"

var ErrNotFound = errors.New("no labelling server found")

// Discover browses the local network for a labelling server and returns the
// base URL of the first one that answers with a usable address.
func Discover(ctx context.Context, service string, timeout time.Duration) (string, error) {
	if service == "" {
		service = ServiceType
	}
	entries := make(chan *mdns.ServiceEntry, 8)
	params := mdns.DefaultParams(service)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	done := make(chan error, 1)
	go func() { done <- mdns.Query(params) }()

	for {
		select {
		case e := <-entries:
			if addr, ok := entryURL(e); ok {
				log.Printf("[net] discovered %s at %s", e.Name, addr)
				return addr, nil
			}
		case err := <-done:
			if err != nil {
				return "", fmt.Errorf("mdns query %s: %w", service, err)
			}
			for {
				select {
				case e := <-entries:
					if addr, ok := entryURL(e); ok {
						return addr, nil
					}
				default:
					return "", ErrNotFound
				}
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func entryURL(e *mdns.ServiceEntry) (string, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return "", false
	}
	return fmt.Sprintf("http://%s:%d", e.AddrV4.String(), e.Port), true
}
