package bridge

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
)

// PublisherState 发布端生命周期：Unbound → Bound → Closed（终态）
type PublisherState int32

const (
	StateUnbound PublisherState = iota
	StateBound
	StateClosed
)

func (s PublisherState) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyStarted   = errors.New("publisher already started")
	ErrClosed           = errors.New("publisher closed")
	ErrMalformedAddress = errors.New("malformed publisher address")
)

// PublisherConfig 发布端传输参数
type PublisherConfig struct {
	Path         string        // 订阅者握手路径
	SendQueue    int           // 每个订阅者的发送队列容量，满则丢弃
	WriteTimeout time.Duration // 单条消息写超时
}

func (c *PublisherConfig) defaults() {
	if c.Path == "" {
		c.Path = "/"
	}
	if c.SendQueue <= 0 {
		c.SendQueue = 64
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
}

// Publisher 持有对外的发布套接字：只绑定一次、尽力而为的非阻塞发送、确定性的关闭
// 传输层是 WebSocket 广播：订阅者自行连接/断开，只收到连接完成之后发布的消息
type Publisher struct {
	cfg      PublisherConfig
	metrics  *Metrics
	upgrader websocket.Upgrader

	// mu 保护状态迁移与订阅者集合；发送队列只在持锁时关闭，Publish 与 Close 可以并发
	mu       sync.Mutex
	state    atomic.Int32
	endpoint string
	ln       net.Listener
	srv      *http.Server
	subs     map[*subscriberConn]struct{}
}

// subscriberConn 单个订阅者：带缓冲的发送队列 + 独立写协程
type subscriberConn struct {
	ws     *websocket.Conn
	send   chan []byte
	remote string
}

// NewPublisher 创建处于 Unbound 状态的发布端；metrics 可为 nil
func NewPublisher(cfg PublisherConfig, metrics *Metrics) *Publisher {
	cfg.defaults()
	return &Publisher{
		cfg:     cfg,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// 订阅者是本地进程而不是浏览器
				return true
			},
		},
		subs: make(map[*subscriberConn]struct{}),
	}
}

// ParseEndpoint 把 "tcp://host:port" / "ws://host:port" 转为可监听的 host:port
// host 为 "*" 表示监听所有网卡
func ParseEndpoint(address string) (string, error) {
	scheme, rest, ok := strings.Cut(address, "://")
	if !ok {
		return "", fmt.Errorf("%w %q: missing scheme", ErrMalformedAddress, address)
	}
	switch scheme {
	case "tcp", "ws":
	default:
		return "", fmt.Errorf("%w %q: unsupported scheme %q", ErrMalformedAddress, address, scheme)
	}
	rest = strings.TrimSuffix(rest, "/")
	host, port, err := net.SplitHostPort(rest)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrMalformedAddress, address, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return "", fmt.Errorf("%w %q: bad port %q", ErrMalformedAddress, address, port)
	}
	if host == "*" {
		host = ""
	}
	return net.JoinHostPort(host, port), nil
}

// Start 绑定地址并开始接受订阅者（Unbound → Bound）
// 地址非法或已被占用时返回错误，发布端保持 Unbound；这是启动期配置错误，由调用方决定是否退出
func (p *Publisher) Start(address string) error {
	if p == nil {
		return ErrClosed
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	switch PublisherState(p.state.Load()) {
	case StateBound:
		return ErrAlreadyStarted
	case StateClosed:
		return ErrClosed
	}

	hostport, err := ParseEndpoint(address)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", hostport)
	if err != nil {
		return fmt.Errorf("bind %s: %w", address, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(p.cfg.Path, p.handleSubscribe)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	p.endpoint = address
	p.ln = ln
	p.srv = srv
	p.state.Store(int32(StateBound))

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Log.Warnf("publisher serve %s: %v", address, err)
		}
	}()

	Log.Infof("publisher bound to %s (listening on %s)", address, ln.Addr())
	return nil
}

// State 当前生命周期状态；nil 发布端视为 Unbound
// 查询类方法、Publish 与 Close 都允许 nil 接收者，缺失的发布端不能让 Tick 回调崩溃
func (p *Publisher) State() PublisherState {
	if p == nil {
		return StateUnbound
	}
	return PublisherState(p.state.Load())
}

// IsBound 仅 Bound 状态下 Publish 才会真正发送
func (p *Publisher) IsBound() bool {
	return p.State() == StateBound
}

// Addr 实际监听地址（端口为 0 时可取到系统分配的端口），未绑定返回空串
func (p *Publisher) Addr() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ln == nil || p.State() != StateBound {
		return ""
	}
	return p.ln.Addr().String()
}

// Subscribers 当前已注册的订阅者数量
func (p *Publisher) Subscribers() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Publish 尽力而为地广播一条消息，永不阻塞、永不返回错误
// 非 Bound 状态静默忽略；无订阅者时直接丢弃；订阅者队列满时对该订阅者丢弃
func (p *Publisher) Publish(payload []byte) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.State() != StateBound {
		return
	}
	p.metrics.IncPublished()
	if len(p.subs) == 0 {
		p.metrics.IncNoSubscriber()
		return
	}
	for c := range p.subs {
		select {
		case c.send <- payload:
		default:
			// 慢订阅者：丢弃本条，保证 Tick 不被拖慢
			p.metrics.IncQueueFullDropped()
		}
	}
}

// Close 释放监听端口、HTTP 服务和所有订阅者连接（Bound → Closed）
// 幂等：重复调用或在 Unbound 状态调用都是安全的空操作
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	prev := PublisherState(p.state.Swap(int32(StateClosed)))
	if prev != StateBound {
		p.mu.Unlock()
		return nil
	}
	ln, srv := p.ln, p.srv
	conns := make([]*subscriberConn, 0, len(p.subs))
	for c := range p.subs {
		delete(p.subs, c)
		close(c.send)
		conns = append(conns, c)
	}
	p.ln, p.srv = nil, nil
	p.mu.Unlock()

	var err error
	err = multierr.Append(err, ignoreClosed(srv.Close()))
	err = multierr.Append(err, ignoreClosed(ln.Close()))
	deadline := time.Now().Add(100 * time.Millisecond)
	for _, c := range conns {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "publisher closed"), deadline)
		err = multierr.Append(err, ignoreClosed(c.ws.Close()))
		p.metrics.IncSubscribersOut()
	}

	Log.Infof("publisher closed: %s (%d subscribers dropped)", p.endpoint, len(conns))
	return err
}

// handleSubscribe WebSocket 接入：握手完成后注册为订阅者
func (p *Publisher) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if !p.IsBound() {
		http.Error(w, "publisher not bound", http.StatusServiceUnavailable)
		return
	}
	ws, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("subscriber upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	c := &subscriberConn{
		ws:     ws,
		send:   make(chan []byte, p.cfg.SendQueue),
		remote: r.RemoteAddr,
	}
	if !p.register(c) {
		_ = ws.Close()
		return
	}
	go p.writePump(c)
	go p.readPump(c)
}

func (p *Publisher) register(c *subscriberConn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.State() != StateBound {
		return false
	}
	p.subs[c] = struct{}{}
	p.metrics.IncSubscribersIn()
	Log.Infof("subscriber joined: %s (total %d)", c.remote, len(p.subs))
	return true
}

// unregister 从集合中移除并关闭发送队列；已被 Close 摘除的连接只关闭底层连接
func (p *Publisher) unregister(c *subscriberConn) {
	p.mu.Lock()
	_, ok := p.subs[c]
	if ok {
		delete(p.subs, c)
		close(c.send)
	}
	p.mu.Unlock()
	if ok {
		p.metrics.IncSubscribersOut()
		Log.Infof("subscriber left: %s", c.remote)
	}
	_ = c.ws.Close()
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (p *Publisher) writePump(c *subscriberConn) {
	defer p.unregister(c)
	for msg := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			Log.Debugf("write to subscriber %s: %v", c.remote, err)
			return
		}
	}
}

// readPump 订阅者不发送业务消息，读循环只用于处理控制帧和感知断开
func (p *Publisher) readPump(c *subscriberConn) {
	defer p.unregister(c)
	c.ws.SetReadLimit(512)
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func ignoreClosed(err error) error {
	if err == nil || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
