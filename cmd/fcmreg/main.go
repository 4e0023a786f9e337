// Command fcmreg is the operator CLI for the GB 9685-2016 positive-list
// registry. See internal/interfaces/cli for the commands.
package main

import "github.com/turtacn/FCM-Registry/internal/interfaces/cli"

func main() {
	cli.Execute()
}
