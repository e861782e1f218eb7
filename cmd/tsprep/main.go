// tsprep 下载并准备气象、光伏与天然气价格预测数据集
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 收到中断信号时取消下载与处理
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, stopping...")
		cancel()
	}()

	if err := execute(ctx, &app{}, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}

// execute 运行命令，无论成功与否都关闭日志文件
func execute(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) (err error) {
	defer func() {
		if a.logger != nil && err != nil {
			a.logger.ErrorContext(ctx, "command failed", slog.String("error", err.Error()))
		}
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}
