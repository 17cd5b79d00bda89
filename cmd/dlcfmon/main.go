package main

import (
	"flag"
	"log"

	"github.com/robotalks/dlcf/pkg/bridge/mqtt"
	"github.com/robotalks/dlcf/pkg/env"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	conf := env.NewConfig()
	codec, err := mqtt.CodecByName(conf.Codec)
	if err != nil {
		log.Fatalln(err)
	}
	q, err := conf.NewQueue()
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		frame, err := codec.Decode(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: [%d] % x", topic, len(frame), frame)
	}))
	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		log.Fatalln(token.Error())
	}
	log.Printf("monitoring %s#", q.TopicPrefix)
	<-(chan struct{})(nil)
}
