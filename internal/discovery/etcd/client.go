package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

type Config struct {
	Endpoints []string
	TTL       int
}

type Client struct {
	*clientv3.Client
	ttl int64
}

// New endpoints 为空返回 (nil, nil)，服务注册整体关闭
func New(cfg Config) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, nil
	}
	cli, err := clientv3.New(clientv3.Config{Endpoints: cfg.Endpoints, DialTimeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("etcd connect: %w", err)
	}
	ttl := int64(cfg.TTL)
	if ttl <= 0 {
		ttl = 10
	}
	return &Client{Client: cli, ttl: ttl}, nil
}

// Instance 注册到 etcd 的实例元数据
type Instance struct {
	InstanceID  string `json:"instance_id"`
	Env         string `json:"env"`
	Version     string `json:"version"`
	IP          string `json:"ip"`
	Port        string `json:"port"`
	StartupUnix int64  `json:"startup_unix"`
}

// Key 形如 /services/oneplace/<env>/<version>/<ip>:<port>，重启后保持稳定
func (i Instance) Key(service string) string {
	return fmt.Sprintf("/services/%s/%s/%s/%s:%s", service, i.Env, i.Version, i.IP, i.Port)
}

// Register 写入带租约的 key 并保持续约，返回 leaseID 供下线时撤销
func (c *Client) Register(ctx context.Context, key string, inst Instance) (clientv3.LeaseID, error) {
	val, err := json.Marshal(inst)
	if err != nil {
		return 0, err
	}
	lease, err := c.Client.Grant(ctx, c.ttl)
	if err != nil {
		return 0, err
	}
	if _, err := c.Client.Put(ctx, key, string(val), clientv3.WithLease(lease.ID)); err != nil {
		return 0, err
	}
	ch, err := c.Client.KeepAlive(context.Background(), lease.ID)
	if err != nil {
		return 0, err
	}
	go func() {
		for range ch {
		}
	}()
	return lease.ID, nil
}

// Deregister 删除 key 并撤销租约（key 可能已过期，错误忽略）
func (c *Client) Deregister(ctx context.Context, key string, leaseID clientv3.LeaseID) {
	_, _ = c.Client.Delete(ctx, key)
	if leaseID > 0 {
		_, _ = c.Client.Revoke(ctx, leaseID)
	}
}

// Ping readyz 使用
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Client.Get(ctx, "health")
	return err
}

func (c *Client) Close() error { return c.Client.Close() }
