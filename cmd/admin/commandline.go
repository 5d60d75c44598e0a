package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"student-records/backend/internal/service"
)

var (
	readPasswordFunc = term.ReadPassword // 测试中替换

	errHelp             = errors.New("help provided")
	errPasswordMismatch = errors.New("两次输入的密码不一致")
)

type commandLine struct {
	authSvc service.AuthService
	migrate func(down bool) error
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME [-admin]  创建或更新账号，密码随后输入")
	fmt.Fprintln(cli.out, "  migrate [-down]                          执行（或回滚）数据库迁移")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "adduser":
		return cli.addUser(args[2:])
	case "migrate":
		return cli.runMigrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addUser(args []string) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(cli.out)
	email := fs.String("email", "", "登录邮箱")
	name := fs.String("name", "", "姓名（更新已有账号时可留空）")
	admin := fs.Bool("admin", false, "授予管理员角色")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}

	pwd, err := cli.prompt("Enter password:")
	if err != nil {
		return err
	}
	if pwd == "" {
		fs.Usage()
		return errHelp
	}
	confirm, err := cli.prompt("Confirm password:")
	if err != nil {
		return err
	}
	if confirm != pwd {
		return errPasswordMismatch
	}

	user, created, err := cli.authSvc.ProvisionUser(context.Background(), *email, *name, pwd, *admin)
	if err != nil {
		return err
	}

	action := "已更新"
	if created {
		action = "已创建"
	}
	fmt.Fprintf(cli.out, "%s账号 %s（%s，角色 %s）\n", action, user.Email, user.ID, user.Role)
	return nil
}

func (cli *commandLine) runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(cli.out)
	down := fs.Bool("down", false, "回滚全部迁移")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}

	if err := cli.migrate(*down); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "迁移完成")
	return nil
}

func (cli *commandLine) prompt(label string) (string, error) {
	fmt.Fprint(cli.out, label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
