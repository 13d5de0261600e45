// Package services maps TCP port numbers to the service names conventionally
// registered for them. The table is compiled in so output does not depend on
// the host's /etc/services.
package services

// Unknown is returned for ports without a registered service.
const Unknown = "n/a"

// Table maps a TCP port to a service name.
type Table map[uint16]string

// Default holds the IANA well-known and common registered TCP services.
var Default = Table{
	1:     "tcpmux",
	7:     "echo",
	9:     "discard",
	11:    "systat",
	13:    "daytime",
	15:    "netstat",
	17:    "qotd",
	19:    "chargen",
	20:    "ftp-data",
	21:    "ftp",
	22:    "ssh",
	23:    "telnet",
	25:    "smtp",
	37:    "time",
	43:    "whois",
	49:    "tacacs",
	53:    "domain",
	70:    "gopher",
	79:    "finger",
	80:    "http",
	88:    "kerberos",
	102:   "iso-tsap",
	104:   "acr-nema",
	106:   "poppassd",
	110:   "pop3",
	111:   "sunrpc",
	113:   "auth",
	119:   "nntp",
	123:   "ntp",
	135:   "epmap",
	137:   "netbios-ns",
	139:   "netbios-ssn",
	143:   "imap2",
	161:   "snmp",
	162:   "snmp-trap",
	163:   "cmip-man",
	164:   "cmip-agent",
	174:   "mailq",
	179:   "bgp",
	199:   "smux",
	209:   "qmtp",
	210:   "z3950",
	213:   "ipx",
	389:   "ldap",
	427:   "svrloc",
	443:   "https",
	444:   "snpp",
	445:   "microsoft-ds",
	464:   "kpasswd",
	465:   "submissions",
	487:   "saft",
	512:   "exec",
	513:   "login",
	514:   "shell",
	515:   "printer",
	538:   "gdomap",
	540:   "uucp",
	543:   "klogin",
	544:   "kshell",
	548:   "afpovertcp",
	554:   "rtsp",
	563:   "nntps",
	587:   "submission",
	607:   "nqs",
	628:   "qmqp",
	631:   "ipp",
	636:   "ldaps",
	646:   "ldp",
	655:   "tinc",
	706:   "silc",
	749:   "kerberos-adm",
	853:   "domain-s",
	873:   "rsync",
	989:   "ftps-data",
	990:   "ftps",
	992:   "telnets",
	993:   "imaps",
	995:   "pop3s",
	1080:  "socks",
	1099:  "rmiregistry",
	1194:  "openvpn",
	1433:  "ms-sql-s",
	1434:  "ms-sql-m",
	1524:  "ingreslock",
	1645:  "datametrics",
	1646:  "sa-msg-port",
	1649:  "kermit",
	1701:  "l2f",
	1723:  "pptp",
	1812:  "radius",
	1813:  "radius-acct",
	1883:  "mqtt",
	2000:  "cisco-sccp",
	2049:  "nfs",
	2086:  "gnunet",
	2101:  "rtcm-sc104",
	2119:  "gsigatekeeper",
	2135:  "gris",
	2375:  "docker",
	2376:  "docker-s",
	2401:  "cvspserver",
	2601:  "zebra",
	2604:  "ospfd",
	2605:  "bgpd",
	2628:  "dict",
	2947:  "gpsd",
	3050:  "gds-db",
	3260:  "iscsi-target",
	3306:  "mysql",
	3389:  "ms-wbt-server",
	3493:  "nut",
	3632:  "distcc",
	3689:  "daap",
	3690:  "svn",
	4031:  "suucp",
	4190:  "sieve",
	4369:  "epmd",
	4373:  "remctl",
	4460:  "ntske",
	4500:  "ipsec-nat-t",
	4569:  "iax",
	4691:  "mtn",
	4899:  "radmin-port",
	5000:  "upnp",
	5060:  "sip",
	5061:  "sip-tls",
	5222:  "xmpp-client",
	5269:  "xmpp-server",
	5353:  "mdns",
	5432:  "postgresql",
	5556:  "freeciv",
	5666:  "nrpe",
	5667:  "nsca",
	5671:  "amqps",
	5672:  "amqp",
	5900:  "rfb",
	5984:  "couchdb",
	6000:  "x11",
	6379:  "redis",
	6443:  "sun-sr-https",
	6514:  "syslog-tls",
	6566:  "sane-port",
	6667:  "ircd",
	6697:  "ircs-u",
	8000:  "irdmi",
	8008:  "http-alt",
	8080:  "http-alt",
	8081:  "sunproxyadmin",
	8088:  "omniorb",
	8443:  "pcsync-https",
	8883:  "secure-mqtt",
	8888:  "ddi-tcp-1",
	9000:  "cslistener",
	9090:  "websm",
	9092:  "XmlIpcRegSvc",
	9100:  "jetdirect",
	9101:  "bacula-dir",
	9102:  "bacula-fd",
	9103:  "bacula-sd",
	9200:  "wap-wsp",
	9418:  "git",
	9667:  "xmms2",
	9999:  "distinct",
	10000: "webmin",
	10050: "zabbix-agent",
	10051: "zabbix-trapper",
	11211: "memcache",
	11371: "hkp",
	15345: "xpilot",
	17500: "db-lsp",
	27017: "mongodb",
	50000: "ibm-db2",
}

// Lookup returns the registered service name for port, or Unknown.
func Lookup(port uint16) string {
	return Default.Lookup(port)
}

func (t Table) Lookup(port uint16) string {
	if name, ok := t[port]; ok && name != "" {
		return name
	}
	return Unknown
}

// With returns a copy of t with overrides applied on top. t is not modified.
func (t Table) With(overrides map[uint16]string) Table {
	out := make(Table, len(t)+len(overrides))
	for port, name := range t {
		out[port] = name
	}
	for port, name := range overrides {
		out[port] = name
	}
	return out
}
