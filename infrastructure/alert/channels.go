package alert

import (
	"fmt"
	"log"
	"os"
	"sort"
)

// LogChannel 日志告警通道
type LogChannel struct {
	logger *log.Logger
	name   string
}

// NewLogChannel 创建日志告警通道
func NewLogChannel(name string, output *os.File) *LogChannel {
	if output == nil {
		output = os.Stdout
	}
	return &LogChannel{
		logger: log.New(output, "[ALERT] ", log.LstdFlags),
		name:   name,
	}
}

// Send 发送告警到日志
func (c *LogChannel) Send(alert Alert) error {
	c.logger.Println(formatAlert(alert))
	return nil
}

// Name 返回通道名称
func (c *LogChannel) Name() string { return c.name }

// ConsoleChannel 控制台告警通道（按级别着色）
type ConsoleChannel struct {
	name string
}

func NewConsoleChannel(name string) *ConsoleChannel {
	return &ConsoleChannel{name: name}
}

// Send 发送告警到控制台
func (c *ConsoleChannel) Send(alert Alert) error {
	const reset = "\033[0m"
	color := ""
	switch alert.Level {
	case "INFO":
		color = "\033[32m"
	case "WARNING":
		color = "\033[33m"
	case "ERROR", "CRITICAL":
		color = "\033[31m"
	}
	fmt.Println(color + formatAlert(alert) + reset)
	return nil
}

func (c *ConsoleChannel) Name() string { return c.name }

func formatAlert(alert Alert) string {
	msg := fmt.Sprintf("[%s] %s", alert.Level, alert.Message)
	if len(alert.Fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(alert.Fields))
	for k := range alert.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msg += " |"
	for _, k := range keys {
		msg += fmt.Sprintf(" %s=%v", k, alert.Fields[k])
	}
	return msg
}
