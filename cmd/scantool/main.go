package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/saveligulas/pet-feeder-network/internal/devicelink"

	"github.com/google/uuid"
)

// scantool replays tag scans against a running feeder's device link, so a
// deployment can be exercised without reader hardware.
func main() {
	var (
		server = flag.String("server", "localhost:9600", "feeder device-link address")
		device = flag.String("device", "", "device ID to announce")
		uid    = flag.String("uid", "", "tag UID to scan")
	)
	flag.Parse()

	if *uid == "" {
		log.Fatal("scantool: -uid is required")
	}
	if *device == "" {
		hostname, _ := os.Hostname()
		*device = hostname
	}

	conn, err := net.Dial("tcp", *server)
	if err != nil {
		log.Fatalf("dial %s: %v", *server, err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	if _, err := roundTrip(conn, r, &devicelink.Message{
		ID:   uuid.NewString(),
		Op:   devicelink.OpHello,
		From: *device,
	}); err != nil {
		log.Fatalf("hello: %v", err)
	}

	ack, err := roundTrip(conn, r, &devicelink.Message{
		ID:   uuid.NewString(),
		Op:   devicelink.OpScan,
		From: *device,
		UID:  *uid,
	})
	if err != nil {
		log.Fatalf("scan: %v", err)
	}

	switch ack.Status {
	case "authorized":
		fmt.Printf("authorized: %s, portion %ds, feed %d today\n", ack.PetName, ack.PortionTime, ack.FeedsToday)
	case "registration":
		fmt.Printf("captured for registration: %s\n", ack.UID)
	default:
		fmt.Printf("%s: %s%s\n", ack.Status, ack.Message, ack.Error)
	}
}

func roundTrip(conn net.Conn, r *bufio.Reader, req *devicelink.Message) (*devicelink.Message, error) {
	data, err := req.Encode()
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(data); err != nil {
		return nil, err
	}
	line, _, err := r.ReadLine()
	if err != nil {
		return nil, err
	}
	return devicelink.Decode(line)
}
