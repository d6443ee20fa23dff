package main

var translations = map[string]map[string]string{
    "en": {
        "usage": "Usage: ./sac-stmt -mode parse -in <statements.csv> [-actions <actions.csv>] [-config <config.yaml>] [-username <all|user>] [-stmttype <all|type>] [-statements] [-lang <language_code>]",
        "load_usage": "Usage: ./sac-stmt -mode load -db <mysql_connection_string> -in <summary.csv>[,<summary.csv>...] -run <run name> -table <expensive_statements>",
        "report_usage": "Usage: ./sac-stmt -mode report -db <mysql_connection_string> -run <run name> -table <expensive_statements> -port ':8081'",
        "invalid_mode": "Invalid mode. Available modes: parse, load, report",
        "parsing_start": "Parameters read successfully, starting statement parsing",
        "rows_reconstructed": "Statement rows reconstructed",
        "actions_missing": "No actions file given, skipping data action summary",
        "mds_no_metadata": "Could not derive metadata for statement, please check manually",
        "file_written": "Summary written",
        "parsing_complete": "Statement parsing completed",
        "parsing_failed": "Statement parsing failed",
        "load_start": "Begin create table",
        "load_file_complete": "Completed processing file",
        "load_failed": "Load failed",
        "report_listen": "Report server is running",
        "report_failed": "Report server failed",
    },
    "zh": {
        "usage": "用法: ./sac-stmt -mode parse -in <语句日志.csv> [-actions <操作日志.csv>] [-config <配置.yaml>] [-username <all|用户名>] [-stmttype <all|语句类型>] [-statements] [-lang <语言代码>]",
        "load_usage": "用法: ./sac-stmt -mode load -db <mysql连接字符串> -in <汇总.csv>[,<汇总.csv>...] -run <运行名称> -table <expensive_statements>",
        "report_usage": "用法: ./sac-stmt -mode report -db <mysql连接字符串> -run <运行名称> -table <expensive_statements> -port ':8081'",
        "invalid_mode": "无效的模式。可用模式: parse, load, report",
        "parsing_start": "参数读取成功，开始解析语句",
        "rows_reconstructed": "语句行重建完成",
        "actions_missing": "未指定操作日志，跳过数据操作汇总",
        "mds_no_metadata": "无法解析该语句的元数据，请手动检查",
        "file_written": "汇总文件已写入",
        "parsing_complete": "完成语句解析",
        "parsing_failed": "语句解析失败",
        "load_start": "开始建表",
        "load_file_complete": "文件处理完成",
        "load_failed": "加载失败",
        "report_listen": "报告服务已启动",
        "report_failed": "报告服务异常",
    },
}
