package main

import "github.com/chzyer/readline"

var preLoginCompleter = readline.NewPrefixCompleter(
	readline.PcItem("login"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
	readline.PcItem("clear"),
)

var postLoginCompleter = readline.NewPrefixCompleter(
	readline.PcItem("login"),
	readline.PcItem("user",
		readline.PcItem("create"),
	),
	readline.PcItem("collection",
		readline.PcItem("create"),
		readline.PcItem("delete"),
		readline.PcItem("list"),
	),
	readline.PcItem("schema",
		readline.PcItem("set"),
		readline.PcItem("get"),
	),
	readline.PcItem("insert"),
	readline.PcItem("find"),
	readline.PcItem("count"),
	readline.PcItem("update"),
	readline.PcItem("delete"),
	readline.PcItem("validate"),
	readline.PcItem("save"),
	readline.PcItem("clear"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
)
