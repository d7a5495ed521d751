package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

// A minimal line-protocol worker for exec tests. Behaviour is selected
// with ECHO_WORKER_MODE:
//
//	(unset)   print READY, echo "<id> <value>" for each request
//	crash     print READY, exit 3 on the first request
//	stubborn  print READY, ignore SIGTERM
//	chunked   like the default, but split every reply across two writes
func main() {
	mode := os.Getenv("ECHO_WORKER_MODE")
	if mode == "stubborn" {
		signal.Ignore(syscall.SIGTERM)
	}
	fmt.Fprintln(os.Stderr, "echo worker starting mode="+mode)
	fmt.Println("READY")
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) != 4 {
			continue
		}
		switch mode {
		case "crash":
			os.Exit(3)
		case "chunked":
			reply := f[0] + " " + f[1] + "\n"
			half := len(reply) / 2
			os.Stdout.WriteString(reply[:half])
			time.Sleep(10 * time.Millisecond)
			os.Stdout.WriteString(reply[half:])
		default:
			fmt.Println(f[0] + " " + f[1])
		}
	}
}
