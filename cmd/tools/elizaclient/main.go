package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
	"github.com/zhouzirui/eliza/backend/pkg/elizaclient"
)

// greetingFrames 是服务端在连接建立后固定发送的帧数。
const greetingFrames = 3

func main() {
	url := flag.String("url", defaultURL(), "ELIZA WebSocket 地址")
	message := flag.String("message", "I am feeling sad", "问候结束后发送的消息")
	timeout := flag.Duration("timeout", 10*time.Second, "等待回复的超时时间")
	flag.Set("logtostderr", "true")
	flag.Parse()
	defer glog.Flush()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sendErr := make(chan error, 1)
	client, err := elizaclient.Dial(ctx, *url, elizaclient.DefaultOptions(), func(c *elizaclient.Client, index int, text string) {
		glog.Infof("frame[%d] %q", index, text)
		if index == greetingFrames-1 {
			sendErr <- c.Send(*message)
		}
	})
	if err != nil {
		glog.Exitf("连接失败: %v", err)
	}
	defer client.Close()

	frames, err := client.WaitFrames(ctx, greetingFrames+1)
	if err != nil {
		glog.Exitf("等待回复失败: %v (已收到 %d 帧)", err, len(client.Frames()))
	}

	select {
	case err := <-sendErr:
		if err != nil {
			glog.Exitf("发送消息失败: %v", err)
		}
	default:
	}

	for i, frame := range frames {
		fmt.Printf("%d\t%s\n", i, frame)
	}
}

func defaultURL() string {
	if err := godotenv.Load(); err != nil {
		glog.V(1).Infof("无法加载 .env，改用系统环境变量: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	path := os.Getenv("ELIZA_PATH")
	if path == "" {
		path = "/eliza"
	}
	return fmt.Sprintf("ws://localhost:%s%s", port, path)
}
