package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/gorilla/websocket"
)

// Subscribe 订阅端：连接发布端并逐条解码，fn 在读循环中同步调用
// ctx 取消或发布端正常关闭时返回 nil；连接中途异常返回错误（不重连）
func Subscribe(ctx context.Context, address, path string, fn func(Snapshot)) error {
	hostport, err := ParseEndpoint(address)
	if err != nil {
		return err
	}
	host, port, _ := net.SplitHostPort(hostport)
	if host == "" {
		host = "127.0.0.1"
	}
	if path == "" {
		path = "/"
	}
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(host, port), Path: path}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	Log.Infof("subscribed to %s", u.String())
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read snapshot: %w", err)
		}
		snap, err := Decode(payload)
		if err != nil {
			Log.Warnf("discarding malformed payload (%d bytes): %v", len(payload), err)
			continue
		}
		fn(snap)
	}
}
