package main

import "standupbot/internal/app"

func main() {
	app.Main()
}
